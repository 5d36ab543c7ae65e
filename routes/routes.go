package routes

import (
	"net/http"
	"time"

	profileRepo "tradocs/database/repository/profile"
	"tradocs/handlers"
	"tradocs/middleware"
	"tradocs/models"
	"tradocs/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps carries what the route groups need besides the handlers.
type Deps struct {
	Profiles  profileRepo.ProfileRepository
	AuthCache utils.AuthCache
	Origins   []string
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		h := utils.GetHealthStatus()
		code, state := http.StatusOK, "ok"
		if !h.CheckedAt.IsZero() && !h.Healthy() {
			code, state = http.StatusServiceUnavailable, "degraded"
		}
		c.JSON(code, gin.H{"status": state, "checks": h})
	})
}

// RegisterAuthRoutes registers sign-up, login and the public legal pages.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/auth")
	{
		api.POST("/register", hb.RegisterHandler)
		api.POST("/login", hb.LoginHandler)
		api.POST("/logout", auth, hb.LogoutHandler)
	}
	r.GET("/api/legal", hb.LegalDocumentationHandler)
}

// RegisterCustomerRoutes registers the endpoints every signed-in profile uses.
func RegisterCustomerRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	profile := r.Group("/api/profile", auth)
	{
		profile.GET("", hb.GetProfileHandler)
		profile.PATCH("", hb.UpdateProfileHandler)
		profile.PUT("/password", hb.ChangePasswordHandler)
		profile.POST("/affiliate", hb.EnableAffiliateHandler)
		profile.GET("/legal", hb.LegalDocumentationHandler)
	}

	docs := r.Group("/api/documents", auth)
	{
		docs.GET("", hb.ListDocumentsHandler)
		docs.POST("", hb.UploadDocumentHandler)
		docs.GET("/stats", hb.DocumentStatsHandler)
		docs.GET("/:id", hb.GetDocumentHandler)
		docs.DELETE("/:id", hb.DeleteDocumentHandler)
		docs.GET("/:id/download", hb.DownloadDocumentHandler)
		docs.PUT("/:id/folder", hb.MoveDocumentHandler)
	}

	folders := r.Group("/api/folders", auth)
	{
		folders.GET("", hb.ListFoldersHandler)
		folders.POST("", hb.CreateFolderHandler)
		folders.PATCH("/:id", hb.UpdateFolderHandler)
		folders.DELETE("/:id", hb.DeleteFolderHandler)
	}

	r.GET("/api/notifications/stream", middleware.QueryTokenAuth(), auth, hb.NotificationStreamHandler)

	notifications := r.Group("/api/notifications", auth)
	{
		notifications.GET("", hb.ListNotificationsHandler)
		notifications.GET("/unread-count", hb.UnreadCountHandler)
		notifications.PUT("/read-all", hb.MarkAllNotificationsReadHandler)
		notifications.PUT("/:id/read", hb.MarkNotificationReadHandler)
		notifications.DELETE("/:id", hb.DeleteNotificationHandler)
	}

	affiliate := r.Group("/api/affiliate", auth)
	{
		affiliate.GET("/balance", hb.AffiliateBalanceHandler)
		affiliate.GET("/withdrawals", hb.ListMyWithdrawalsHandler)
		affiliate.POST("/withdrawals", hb.RequestWithdrawalHandler)
		affiliate.DELETE("/withdrawals/:id", hb.CancelWithdrawalHandler)
	}
}

// RegisterPaymentRoutes registers checkout and the Stripe webhook. The webhook
// is authenticated by its signature, not by a bearer token.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	r.POST("/api/payments/webhook", hb.StripeWebhookHandler)

	api := r.Group("/api/payments", auth)
	{
		api.POST("/checkout", hb.CheckoutHandler)
		api.GET("", hb.ListMyPaymentsHandler)
	}
}

// RegisterStaffRoutes registers the authenticator, finance and admin consoles.
func RegisterStaffRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	authn := r.Group("/api/authenticator", auth, middleware.RequireRoles(models.RoleAuthenticator))
	{
		authn.GET("/queue", hb.VerificationQueueHandler)
		authn.GET("/stats", hb.ReviewStatsHandler)
		authn.POST("/verifications/:id/approve", hb.ApproveVerificationHandler)
		authn.POST("/verifications/:id/reject", hb.RejectVerificationHandler)
	}

	fin := r.Group("/api/finance", auth, middleware.RequireRoles(models.RoleFinance))
	{
		fin.GET("/stats", hb.FinanceStatsHandler)
		fin.GET("/report", hb.FinanceReportHandler)
		fin.GET("/export", hb.FinanceExportHandler)
		fin.GET("/payments", hb.ListPaymentsHandler)
		fin.POST("/payments/:id/refund", hb.RefundPaymentHandler)
		fin.GET("/withdrawals", hb.ListWithdrawalsHandler)
		fin.POST("/withdrawals/:id/approve", hb.WithdrawalActionHandler("approve"))
		fin.POST("/withdrawals/:id/reject", hb.WithdrawalActionHandler("reject"))
		fin.POST("/withdrawals/:id/paid", hb.WithdrawalActionHandler("paid"))
	}

	adm := r.Group("/api/admin", auth, middleware.RequireRoles())
	{
		adm.GET("/overview", hb.AdminOverviewHandler)
		adm.GET("/profiles", hb.ListProfilesHandler)
		adm.PUT("/profiles/:id/role", hb.SetRoleHandler)
		adm.DELETE("/profiles/:id", hb.DeleteProfileHandler)
		adm.GET("/documents", hb.ListDocumentsHandler)
		adm.PUT("/documents/:id/status", hb.UpdateDocumentStatusHandler)
		adm.POST("/documents/:id/translation", hb.SubmitTranslationHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, deps Deps) {
	origins := deps.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: len(origins) > 1 || origins[0] != "*",
		MaxAge:           12 * time.Hour,
	}))

	auth := middleware.JWTAuthMiddleware(deps.Profiles, deps.AuthCache)

	RegisterHealthRoute(r)
	RegisterAuthRoutes(r, hb, auth)
	RegisterCustomerRoutes(r, hb, auth)
	RegisterPaymentRoutes(r, hb, auth)
	RegisterStaffRoutes(r, hb, auth)
}
