package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-wallet-bridge/core"
)

var (
	_ gocmd.Querier[StatsMessage, core.BridgeStats]       = (*StatsQuery)(nil)
	_ gocmd.Querier[ListCallLogMessage, core.CallLogPage] = (*ListCallLogQuery)(nil)
	_ gocmd.Querier[ListOriginsMessage, core.OriginPage]  = (*ListOriginsQuery)(nil)
	_ gocmd.Querier[GetOriginMessage, core.OriginProfile] = (*GetOriginQuery)(nil)
)
