package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ActivateSessionMessage]   = (*ActivateSessionCommand)(nil)
	_ gocmd.Commander[DeactivateSessionMessage] = (*DeactivateSessionCommand)(nil)
	_ gocmd.Commander[SubmitRequestMessage]     = (*SubmitRequestCommand)(nil)
	_ gocmd.Commander[FetchManifestMessage]     = (*FetchManifestCommand)(nil)
	_ gocmd.Commander[SetOriginStatusMessage]   = (*SetOriginStatusCommand)(nil)
)
