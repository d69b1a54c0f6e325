package auth

import (
	"github.com/gin-gonic/gin"
)

const (
	actorHeader  = "X-Actor-Id"
	actorContext = "actor_id"
)

// ActorID returns the acting user's id for audit trails. Middleware may
// have set it on the context; otherwise fall back to the header. Empty is
// fine, movements tolerate an unknown actor.
func ActorID(c *gin.Context) string {
	if val, ok := c.Get(actorContext); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}
	return c.GetHeader(actorHeader)
}
