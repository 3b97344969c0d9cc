package handlers

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Apps     int    `json:"apps"`
}
