package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/iliyamo/seatflow/internal/model"
)

// Catalog reads events from the event catalog service.
type Catalog struct {
	endpoint
}

// NewCatalog returns a catalog client rooted at baseURL.
func NewCatalog(baseURL string, opts Options) *Catalog {
	return &Catalog{endpoint: newEndpoint("catalog", baseURL, opts)}
}

// GetEvent fetches one event.  The result is validated; an event without
// seats cannot back a seat map.
func (c *Catalog) GetEvent(ctx context.Context, eventID string) (model.Event, error) {
	resp, err := c.do(ctx, http.MethodGet, "/show-events/"+url.PathEscape(eventID), nil)
	if err != nil {
		return model.Event{}, err
	}
	if resp.status == http.StatusNotFound {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrEventNotFound, eventID)
	}
	if !ok(resp.status) {
		return model.Event{}, &fetchError{collaborator: c.name, status: resp.status}
	}

	ev, err := NormalizeEvent(resp.body)
	if err != nil {
		return model.Event{}, err
	}
	if ev.ID == "" {
		ev.ID = eventID
	}
	if err := ev.Validate(); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}
