package mcp

import (
	"context"

	"github.com/civicsignal/parliament-mcp/internal/parliament"
)

// ClientExecutor adapts *parliament.Client to the ToolExecutor interface.
type ClientExecutor struct {
	Client *parliament.Client
}

func (e *ClientExecutor) SearchUKLaw(ctx context.Context, args parliament.UKLawArgs) (any, error) {
	return e.Client.SearchUKLaw(ctx, args)
}

func (e *ClientExecutor) FetchBills(ctx context.Context, args parliament.BillsArgs) (any, error) {
	return e.Client.FetchBills(ctx, args)
}

func (e *ClientExecutor) FetchCoreDataset(ctx context.Context, args parliament.CoreDatasetArgs) (any, error) {
	return e.Client.FetchCoreDataset(ctx, args)
}

func (e *ClientExecutor) FetchLegislation(ctx context.Context, args parliament.LegislationArgs) (any, error) {
	return e.Client.FetchLegislation(ctx, args)
}

func (e *ClientExecutor) FetchMPActivity(ctx context.Context, args parliament.MPActivityArgs) (any, error) {
	return e.Client.FetchMPActivity(ctx, args)
}

func (e *ClientExecutor) FetchMPVotingRecord(ctx context.Context, args parliament.MPVotingRecordArgs) (any, error) {
	return e.Client.FetchMPVotingRecord(ctx, args)
}

func (e *ClientExecutor) LookupConstituency(ctx context.Context, args parliament.ConstituencyArgs) (any, error) {
	return e.Client.LookupConstituency(ctx, args)
}
