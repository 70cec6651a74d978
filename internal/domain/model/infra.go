package model

// Summaries returned by the read-only engine operations. Shapes mirror
// what the engine reports; nothing here is persisted by this service.

type ImageSummary struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	ShortID string   `json:"short_id"`
}

type ContainerSummary struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Image  []string `json:"image"`
}

type VolumeSummary struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

type ContainerLogs struct {
	Container string   `json:"container"`
	Logs      []string `json:"logs"`
}

type PodLogs struct {
	Pod  string   `json:"pod"`
	Logs []string `json:"logs"`
}
