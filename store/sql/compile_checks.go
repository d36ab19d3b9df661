package sqlstore

import "github.com/goliatone/go-wallet-bridge/core"

var (
	_ core.CallSink        = (*CallLogStore)(nil)
	_ core.CallLogReader   = (*CallLogStore)(nil)
	_ core.CallLogPruner   = (*CallLogStore)(nil)
	_ core.OriginDirectory = (*OriginStore)(nil)
	_ core.OriginDirectory = (*CachedOriginStore)(nil)
)
