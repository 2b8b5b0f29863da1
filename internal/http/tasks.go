package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/tasks"
)

// RescanEnqueuer queues library maintenance work.
type RescanEnqueuer interface {
	EnqueueRescan() error
	EnqueueScan(bookID uint) error
}

// TasksController triggers and inspects background work.
type TasksController struct {
	enqueuer RescanEnqueuer
	client   *tasks.Client
}

func NewTasksController(enqueuer RescanEnqueuer, client *tasks.Client) *TasksController {
	return &TasksController{enqueuer: enqueuer, client: client}
}

// TriggerRescan queues a sweep that scans every book still missing a page
// count or cover.
// POST /api/tasks/scan
func (tc *TasksController) TriggerRescan(c *gin.Context) {
	if err := tc.enqueuer.EnqueueRescan(); err != nil {
		respondInternalError(c, err, "enqueue rescan")
		return
	}
	respondAccepted(c, "rescan queued", nil)
}

// TriggerBookScan queues a scan for a single book.
// POST /api/tasks/scan/:id
func (tc *TasksController) TriggerBookScan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := tc.enqueuer.EnqueueScan(id); err != nil {
		respondInternalError(c, err, "enqueue scan")
		return
	}
	respondAccepted(c, "scan queued", gin.H{"book_id": id})
}

// GetTaskStatus reports the state of a queued task.
// GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task id is required")
		return
	}

	status, err := tc.client.Status(c.Request.Context(), taskID)
	if err != nil {
		respondNotFound(c, "task")
		return
	}
	c.IndentedJSON(http.StatusOK, status)
}
