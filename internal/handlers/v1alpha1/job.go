package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/voxnotes/voxnotes/api/v1alpha1"
)

// (POST /api/v1/jobs/trigger)
//
// Kicks a processing cycle outside the regular schedule, typically called
// right after an upload finished. The cycle only launches the jobs; the
// response does not wait for them.
func (s *ServiceHandler) TriggerJobs(w http.ResponseWriter, r *http.Request) {
	if err := s.processor.ProcessJobs(r.Context()); err != nil {
		zap.S().Named("handler").Errorf("manual trigger failed: %s", err)
	}

	render.JSON(w, r, api.TriggerResponse{Triggered: true})
}
