package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumenfi/swap-engine/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`

	// Failure fields follow the pipeline error taxonomy.
	Code        string `json:"code,omitempty"`
	Error       string `json:"error,omitempty"`
	UserMessage string `json:"userMessage,omitempty"`
	Tip         string `json:"tip,omitempty"`
	Stage       string `json:"stage,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Failure maps any error onto the taxonomy envelope. Errors that are not
// already PipelineErrors come out as Unhandled with a 500.
func Failure(c *gin.Context, stage string, err error) {
	perr := common.AsPipelineError(err, stage)
	c.JSON(perr.StatusCode, Response{
		Success:     false,
		Code:        string(perr.Code),
		Error:       perr.Message,
		UserMessage: perr.UserMessage,
		Tip:         perr.Tip,
		Stage:       perr.Stage,
	})
}

func BadRequest(c *gin.Context, msg string) {
	Failure(c, "validate", common.ErrInvalidPayload(msg))
}
