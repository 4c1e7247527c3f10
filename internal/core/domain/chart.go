package domain

// ChartContainerPrefix prefixes the id of every chart container.
const ChartContainerPrefix = "vega-container-"

// ChartEventKind classifies out-of-band chart render signals.
type ChartEventKind string

// Chart event kinds.
const (
	ChartRendered ChartEventKind = "rendered"
	ChartError    ChartEventKind = "error"
)

// ChartEvent is the terminal outcome of one chart render.
type ChartEvent struct {
	ContainerID string         `json:"containerId"`
	Kind        ChartEventKind `json:"kind"`
	Message     string         `json:"message,omitempty"`
}

// Err returns the event as a RenderError, or nil on success.
func (e ChartEvent) Err() error {
	if e.Kind != ChartError {
		return nil
	}
	return &RenderError{ContainerID: e.ContainerID, Message: e.Message}
}

// ChartSignal is a message posted by the render context back to the host,
// the acknowledgement half of the render round trip.
type ChartSignal struct {
	ContainerID string `json:"containerId"`
	Rendered    bool   `json:"rendered"`
	Error       string `json:"error,omitempty"`
}

// ChartProbe is the observed state of a container during fallback polling.
type ChartProbe struct {
	// Rendered is true when a non-empty SVG is present.
	Rendered bool `json:"rendered"`

	// Error holds error text found in the container, if any.
	Error string `json:"error,omitempty"`

	// Loading is true while the placeholder text is still shown.
	Loading bool `json:"loading"`
}

// ChartScript is one dependency of the chart library.
type ChartScript struct {
	Name   string
	URL    string
	Global string

	// Optional scripts only warn when their global is missing after load.
	Optional bool
}

// ChartLibrary is the handle returned once all chart scripts are loaded.
type ChartLibrary struct {
	Scripts []ChartScript

	// Preloaded is true when the globals were already present and nothing was fetched.
	Preloaded bool
}
