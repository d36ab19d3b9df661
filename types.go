package bridge

import "github.com/goliatone/go-wallet-bridge/core"

// Aliases so downstream callers can depend on the root package alone.

type Config = core.Config

type AdmissionConfig = core.AdmissionConfig

type IngressConfig = core.IngressConfig

type ManifestConfig = core.ManifestConfig

type StorageConfig = core.StorageConfig

type RetentionConfig = core.RetentionConfig

type JobsConfig = core.JobsConfig

type CallRecord = core.CallRecord
type CallLogFilter = core.CallLogFilter
type CallLogPage = core.CallLogPage
type CallRetentionPolicy = core.CallRetentionPolicy

type OriginProfile = core.OriginProfile
type OriginFilter = core.OriginFilter
type OriginPage = core.OriginPage
type OriginStatus = core.OriginStatus

type AdmissionStats = core.AdmissionStats
type BridgeStats = core.BridgeStats

type Logger = core.Logger
type Transport = core.Transport
type DetachFunc = core.DetachFunc
type CallSink = core.CallSink
type CallLogReader = core.CallLogReader
type OriginDirectory = core.OriginDirectory
type MetricsRecorder = core.MetricsRecorder

func DefaultConfig() Config {
	return core.DefaultConfig()
}
