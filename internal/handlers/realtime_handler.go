package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dealflow/internal/realtime"
)

type RealtimeHandler struct {
	Hub *realtime.InvalidationHub
}

func NewRealtimeHandler(hub *realtime.InvalidationHub) *RealtimeHandler {
	return &RealtimeHandler{Hub: hub}
}

var defaultCollections = []string{
	realtime.CollectionDeals,
	realtime.CollectionBoards,
	realtime.CollectionDashboard,
	realtime.CollectionContacts,
}

// Subscribe upgrades the request to a websocket and registers it for
// cache invalidation events. ?collections=deals.all,boards.all narrows
// the subscription; without it the client hears everything.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
		return
	}

	collections := defaultCollections
	if raw := c.Query("collections"); raw != "" {
		collections = nil
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				collections = append(collections, name)
			}
		}
	}
	for _, name := range collections {
		h.Hub.Register(name, conn)
	}

	userID, _, _ := getIdentity(c)
	log.Printf("[realtime][subscribe] user=%d collections=%v", userID, collections)

	go func() {
		defer func() {
			h.Hub.Unregister(conn)
			conn.Close()
		}()
		// drain until the peer hangs up; clients send nothing meaningful
		for {
			var discard interface{}
			if err := conn.ReadJSON(&discard); err != nil {
				return
			}
		}
	}()
}
