package trajectory

// Normalize migrates a step from the legacy shape to the canonical one:
// older files stored the message list under "messages", current files use
// "query". A step that already has Query is left untouched even if Messages
// is also present, which makes the migration idempotent. A step with
// neither simply has zero messages.
func (s *Step) Normalize() {
	if len(s.Query) == 0 && len(s.Messages) > 0 {
		s.Query = s.Messages
	}
}

// Normalize migrates every step of the document in place.
func (d *Document) Normalize() {
	for i := range d.Trajectory {
		d.Trajectory[i].Normalize()
	}
}
