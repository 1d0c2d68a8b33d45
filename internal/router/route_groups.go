package router

import (
	"fitness_portal_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes registers the routes reachable without a token: auth
// entry points, the public card design and the pass download endpoints.
func SetupPublicRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, designHandler *handlers.CardDesignHandler, walletHandler *handlers.WalletHandler) {
	auth := group.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/verify", authHandler.VerifyEmail)
		auth.POST("/setup-admin", authHandler.PromoteAdmin)
	}

	group.GET("/card-designs/active", designHandler.GetActiveDesign)

	wallet := group.Group("/wallet")
	{
		wallet.GET("/apple/:memberId", walletHandler.GetApplePass)
		wallet.GET("/google/:memberId", walletHandler.GetGoogleSave)
	}
}

// SetupMemberRoutes registers the routes available to any authenticated user.
func SetupMemberRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, memberHandler *handlers.MemberHandler, checkinHandler *handlers.CheckinHandler, walletHandler *handlers.WalletHandler, supportHandler *handlers.SupportHandler) {
	group.GET("/auth/me", authHandler.GetProfile)

	group.POST("/checkin", checkinHandler.Scan)

	member := group.Group("/member")
	{
		member.GET("/me", memberHandler.GetMe)
		member.GET("/wallet-card", walletHandler.GetMemberCard)
		member.POST("/request-wallet-card", walletHandler.RequestWalletCard)
		member.POST("/wallet-card/:id/access", walletHandler.TouchCardAccess)
	}

	group.POST("/wallet/generate", walletHandler.GeneratePass)

	privacy := group.Group("/privacy")
	{
		privacy.GET("/export", memberHandler.ExportData)
		privacy.DELETE("/account", memberHandler.DeleteAccount)
	}

	support := group.Group("/support")
	{
		support.POST("/tickets", supportHandler.CreateTicket)
		support.GET("/tickets", supportHandler.GetOwnTickets)
		support.GET("/tickets/:id", supportHandler.GetTicket)
		support.POST("/tickets/:id/messages", supportHandler.Reply)
		support.POST("/tickets/:id/read", supportHandler.MarkRead)
		support.GET("/unread", supportHandler.CountUnread)
	}
}

// SetupAdminRoutes registers the back-office routes. The group already
// carries the ADMIN role check.
func SetupAdminRoutes(group *gin.RouterGroup, memberHandler *handlers.MemberHandler, checkinHandler *handlers.CheckinHandler, designHandler *handlers.CardDesignHandler, cardAdminHandler *handlers.WalletCardAdminHandler, supportHandler *handlers.SupportHandler, statsHandler *handlers.StatsHandler) {
	members := group.Group("/members")
	{
		members.GET("", memberHandler.GetMembers)
		members.GET("/:id", memberHandler.GetMemberByID)
		members.PATCH("/:id/status", memberHandler.UpdateMemberStatus)
		members.POST("/:id/points", checkinHandler.AdjustPoints)
		members.GET("/:id/points", checkinHandler.GetLedger)
	}

	designs := group.Group("/card-designs")
	{
		designs.POST("", designHandler.CreateDesign)
		designs.GET("", designHandler.GetDesigns)
		designs.GET("/:id", designHandler.GetDesignByID)
		designs.PUT("/:id", designHandler.UpdateDesign)
		designs.POST("/:id/activate", designHandler.ActivateDesign)
		designs.DELETE("/:id", designHandler.DeleteDesign)
	}

	cards := group.Group("/wallet-cards")
	{
		cards.GET("", cardAdminHandler.GetCards)
		cards.POST("", cardAdminHandler.CreateCard)
		cards.GET("/stats", cardAdminHandler.GetCardStats)
		cards.PATCH("/:id/points", cardAdminHandler.UpdateCardPoints)
		cards.PATCH("/:id/active", cardAdminHandler.SetCardActive)
		cards.POST("/:id/resend-email", cardAdminHandler.ResendCardEmail)
	}

	support := group.Group("/support")
	{
		support.GET("/tickets", supportHandler.GetAllTickets)
		support.PATCH("/tickets/:id", supportHandler.UpdateTicket)
		support.GET("/stats", supportHandler.GetStats)
	}

	stats := group.Group("/stats")
	{
		stats.GET("/overview", statsHandler.GetOverview)
		stats.GET("/live", statsHandler.GetLiveStats)
	}
}
