package engine

import (
	"context"
	"iter"
	"log/slog"

	"github.com/ivoronin/dupehound/internal/budget"
	"github.com/ivoronin/dupehound/internal/namer"
	"github.com/ivoronin/dupehound/internal/ranker"
	"github.com/ivoronin/dupehound/internal/screener"
	"github.com/ivoronin/dupehound/internal/types"
	"github.com/ivoronin/dupehound/internal/verifier"
)

// Strategy turns the walked files into ranked groups.
type Strategy interface {
	Group(ctx context.Context, files iter.Seq[types.CandidateFile]) ([]types.Group, error)
}

// nameStrategy groups by normalized base name. It reads no content and never pauses.
type nameStrategy struct {
	ignoreExt bool
}

func (n nameStrategy) Group(_ context.Context, files iter.Seq[types.CandidateFile]) ([]types.Group, error) {
	return asGroups(ranker.RankNames(namer.NewGrouper(n.ignoreExt).Group(files))), nil
}

// contentStrategy buckets by size, then hashes under the budget controller.
type contentStrategy struct {
	digester verifier.Digester
	ctrl     *budget.Controller
	errCh    chan error
	logger   *slog.Logger
}

func (c contentStrategy) Group(ctx context.Context, files iter.Seq[types.CandidateFile]) ([]types.Group, error) {
	sc := screener.New(files)
	buckets := sc.Run()
	c.logger.Info(sc.Stats().String())

	v := verifier.New(buckets, c.digester, c.ctrl, c.errCh, c.logger)
	groups, err := v.Run(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info(v.Stats().String())
	// Threshold may have moved since the groups were formed
	return asGroups(ranker.RankContent(groups, c.ctrl.MinSize())), nil
}

func asGroups[G types.Group](groups []G) []types.Group {
	out := make([]types.Group, len(groups))
	for i, g := range groups {
		out[i] = g
	}
	return out
}
