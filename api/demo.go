package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tadeyemo32/prospect-backend/services"
)

func (h *Handler) demoExample(c *gin.Context) {
	c.JSON(http.StatusOK, h.Demo.Example(c.Request.Context(), c.Query("category")))
}

func (h *Handler) demoCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.Demo.Categories()})
}

// demoStream sends count example queries as server-sent events, then a done event.
func (h *Handler) demoStream(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "5"))
	if err != nil {
		count = 5
	}
	count = services.ClampDemoCount(count)
	category := c.Query("category")
	ctx := c.Request.Context()

	for i := 1; i <= count; i++ {
		if i > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(h.streamInterval):
			}
		}
		q := h.Demo.Example(ctx, category)
		c.SSEvent("query", gin.H{"index": i, "query": q.Query, "category": q.Category, "source": q.Source})
		c.Writer.Flush()
	}
	c.SSEvent("done", gin.H{"count": count})
}
