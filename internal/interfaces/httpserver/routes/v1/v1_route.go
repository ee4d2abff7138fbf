package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/conversationhandler"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/identityhandler"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/profilehandler"
)

type V1Route struct {
	identity     *identityhandler.IdentityHandler
	profile      *profilehandler.ProfileHandler
	conversation *conversationhandler.ConversationHandler
}

func NewV1Route(
	identity *identityhandler.IdentityHandler,
	profile *profilehandler.ProfileHandler,
	conversation *conversationhandler.ConversationHandler,
) *V1Route {
	return &V1Route{
		identity,
		profile,
		conversation,
	}
}

// RegisterRouter mounts the /v1 API. router must already carry authentication and identity
// resolution.
func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")

	me := v1Router.Group("/me")
	me.GET("", v1Route.identity.GetMe)
	me.DELETE("", v1Route.identity.DeleteMe)

	profile := v1Router.Group("/profile")
	profile.GET("", v1Route.profile.GetProfile)
	profile.PUT("", v1Route.profile.UpdateProfile)

	conversations := v1Router.Group("/conversations")
	conversations.GET("", v1Route.conversation.ListConversations)
	conversations.POST("", v1Route.conversation.CreateConversation)
	conversations.GET("/:conversation_id", v1Route.conversation.GetConversation)
	conversations.PATCH("/:conversation_id", v1Route.conversation.RenameConversation)
	conversations.DELETE("/:conversation_id", v1Route.conversation.DeleteConversation)
	conversations.POST("/:conversation_id/touch", v1Route.conversation.TouchConversation)

	v1Router.POST("/threads/:thread_id/touch", v1Route.conversation.TouchThread)
}
