package viewer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arsalan924/trajlens/internal/trajectory"
)

// HTTPSource reads trajectories from a running serve instance instead of a
// local directory.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates a source over the API at addr. addr may be a bare
// host:port or a full http URL.
func NewHTTPSource(addr string) *HTTPSource {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &HTTPSource{
		base:   strings.TrimRight(addr, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// List fetches the trajectory name listing.
func (s *HTTPSource) List() ([]string, error) {
	var names []string
	if err := s.getJSON("/api/files", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Label fetches the collection label. An unreachable server yields an empty
// label rather than an error; the listing is the authoritative health check.
func (s *HTTPSource) Label() string {
	var meta struct {
		Label string `json:"label"`
	}
	if err := s.getJSON("/api/directory", &meta); err != nil {
		return ""
	}
	return meta.Label
}

// Load fetches and parses one trajectory document.
func (s *HTTPSource) Load(name string) (*trajectory.Document, error) {
	data, err := s.get("/api/trajectory/" + url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	doc, err := trajectory.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	doc.Normalize()
	return doc, nil
}

func (s *HTTPSource) get(path string) ([]byte, error) {
	resp, err := s.client.Get(s.base + path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (s *HTTPSource) getJSON(path string, out interface{}) error {
	data, err := s.get(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
