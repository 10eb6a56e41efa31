package handlers

import (
	"context"
	"errors"
	"os"

	"github.com/dvloznov/expense-dashboard/internal/render"
)

// DirSnapshots reads the snapshot an HTMLRenderer published into Dir.
type DirSnapshots struct {
	Dir string
}

func (s DirSnapshots) Latest(ctx context.Context) (*render.Snapshot, error) {
	snap, err := render.ReadSnapshot(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	return snap, err
}
