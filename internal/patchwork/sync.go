package patchwork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/patch-warden/internal/core"
	"github.com/sevigo/patch-warden/internal/patch"
)

// Syncer mirrors review decisions to the tracker. Pushes are idempotent:
// a push whose target the tracker already holds succeeds without a request.
type Syncer struct {
	client Client
	logger *slog.Logger
	known  map[int]patch.Record
}

// NewSyncer returns a Syncer backed by client.
func NewSyncer(client Client, logger *slog.Logger) *Syncer {
	return &Syncer{
		client: client,
		logger: logger,
		known:  make(map[int]patch.Record),
	}
}

// Remember records the tracker's current view of a patch.
func (s *Syncer) Remember(rec patch.Record) {
	s.known[rec.ID] = rec
}

// Client returns the underlying tracker client.
func (s *Syncer) Client() Client {
	return s.client
}

// ListAll follows the next links until the listing ends. If a page fails,
// the records gathered so far are returned along with an
// *IncompleteFetchError.
func (s *Syncer) ListAll(ctx context.Context, filter Filter) ([]patch.Record, error) {
	var all []patch.Record
	next := ""
	for {
		page, err := s.client.ListPatches(ctx, filter, next)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			s.logger.Warn("patch listing interrupted", "fetched", len(all), "error", err)
			return all, &IncompleteFetchError{Records: all, Err: err}
		}
		for _, rec := range page.Records {
			s.Remember(rec)
		}
		all = append(all, page.Records...)
		if page.Next == "" {
			return all, nil
		}
		next = page.Next
	}
}

// Fetch retrieves the given patches in order.
func (s *Syncer) Fetch(ctx context.Context, ids []int) ([]patch.Record, error) {
	records := make([]patch.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.client.GetPatch(ctx, id)
		if err != nil {
			return records, err
		}
		s.Remember(rec)
		records = append(records, rec)
	}
	return records, nil
}

func (s *Syncer) current(ctx context.Context, id int) (patch.Record, error) {
	if rec, ok := s.known[id]; ok {
		return rec, nil
	}
	rec, err := s.client.GetPatch(ctx, id)
	if err != nil {
		return patch.Record{}, err
	}
	s.Remember(rec)
	return rec, nil
}

// FetchMbox downloads the raw mail of p unless it was fetched before.
// It only reads from the tracker and may run concurrently.
func (s *Syncer) FetchMbox(ctx context.Context, p *patch.Patch) error {
	if _, ok := p.Mbox(); ok {
		return nil
	}
	if p.MboxURL == "" {
		return &TrackerError{Kind: KindNotFound, Op: "get mbox", PatchID: p.ID, Err: errors.New("record has no mbox url")}
	}
	mbox, err := s.client.GetMbox(ctx, p.MboxURL)
	if err != nil {
		return err
	}
	p.SetMbox(mbox)
	return nil
}

// PushState moves the patch to state.
func (s *Syncer) PushState(ctx context.Context, id int, state core.State) (patch.Record, error) {
	rec, err := s.current(ctx, id)
	if err != nil {
		return patch.Record{}, err
	}
	if have, err := core.ParseState(rec.State); err == nil && have == state {
		s.logger.Debug("patch already in target state", "patch_id", id, "state", state)
		return rec, nil
	}

	target := string(state)
	updated, err := s.client.UpdatePatch(ctx, id, Update{State: &target})
	if err != nil {
		return patch.Record{}, fmt.Errorf("failed to set state %q: %w", state, err)
	}
	s.Remember(updated)
	s.logger.Info("patch state updated", "patch_id", id, "state", state)
	return updated, nil
}

// PushDelegate assigns the patch to the user with the given id.
func (s *Syncer) PushDelegate(ctx context.Context, id int, userID int) (patch.Record, error) {
	rec, err := s.current(ctx, id)
	if err != nil {
		return patch.Record{}, err
	}
	if rec.Delegate != nil && rec.Delegate.ID == userID {
		s.logger.Debug("patch already delegated", "patch_id", id, "delegate", userID)
		return rec, nil
	}

	updated, err := s.client.UpdatePatch(ctx, id, Update{Delegate: &userID})
	if err != nil {
		return patch.Record{}, fmt.Errorf("failed to set delegate %d: %w", userID, err)
	}
	s.Remember(updated)
	s.logger.Info("patch delegate updated", "patch_id", id, "delegate", userID)
	return updated, nil
}
