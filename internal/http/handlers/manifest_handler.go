// actions.json manifest handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
)

// Manifest serves the actions.json routing rules. The trailing wildcard rule
// keeps direct API-path links resolvable by Blink clients.
func Manifest(c *gin.Context) {
	actionCORS(c)
	ok(c, http.StatusOK, actions.Manifest{
		Rules: []actions.Rule{
			{PathPattern: "/analyze", APIPath: "/api/actions/analyze"},
			{PathPattern: "/coupon", APIPath: "/api/actions/coupon"},
			{PathPattern: "/job", APIPath: "/api/actions/job"},
			{PathPattern: "/hackathon", APIPath: "/api/actions/hackathon"},
			{PathPattern: "/api/actions/**", APIPath: "/api/actions/**"},
		},
	})
}
