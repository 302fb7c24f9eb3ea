package pipeline

// State tracks a request through the generation pipeline. States are
// reported in log transitions; a request moves strictly forward except
// for the terminal Failed state.
type State string

const (
	StateIdle         State = "idle"
	StateNormalizing  State = "normalizing"
	StateCacheLookup  State = "cache_lookup"
	StateLoadingModel State = "loading_model"
	StateTranscribing State = "transcribing"
	StateBuilding     State = "building"
	StateCaching      State = "caching"
	StateDone         State = "done"
	StateFailed       State = "failed"
)
