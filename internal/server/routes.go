// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	// Load env
	_ "github.com/joho/godotenv/autoload"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	// Generated swagger docs
	_ "github.com/pelongngoan/jobbuilder-server-sub000/docs"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/auth"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/admin"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/application"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/chat"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/jobpost"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/profile"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/resume"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/controller/savedjob"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/middleware"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/notify"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/realtime"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	allowOrginsStr := os.Getenv("ALLOW_ORIGIN")
	allowOrgins := strings.Split(allowOrginsStr, ",")

	googleOauth := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_AUTH_CLIENT"),
		ClientSecret: os.Getenv("GOOGLE_AUTH_SECRET"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint:    google.Endpoint,
		RedirectURL: os.Getenv("OAUTH_REDIRECT_URL"),
	}

	resolver := identity.NewResolver(s.DB)
	fanout := notify.NewFanout(notify.NewStore(s.DB), s.Hub)

	lAuth := auth.NewLocalAuthHandler(s.DB)
	gAuth := auth.NewOauthLoginHandler(s.DB, googleOauth, "https://www.googleapis.com/oauth2/v2/userinfo")

	engine := application.NewEngine(s.DB, fanout)
	applicationCtl := application.NewController(engine)
	jobCtl := jobpost.NewController(s.DB)
	resumeCtl := resume.NewController(s.DB)
	savedJobCtl := savedjob.NewController(s.DB)
	profileCtl := profile.NewController(s.DB)
	notificationCtl := notify.NewController(s.DB, fanout, s.Hub)
	chatCtl := chat.NewController(s.DB, fanout, s.Hub)
	adminCtl := admin.NewController(s.DB)
	wsHandler := realtime.NewHandler(s.Hub, resolver)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrgins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/", s.HelloWorldHandler)
	r.GET("/health", s.healthHandler)
	r.GET("/ws", wsHandler.Serve)

	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.Use(middleware.EnvRateLimitMiddleware())
			authRoute.POST("register", lAuth.LocalRegisterHandler)
			authRoute.POST("login", lAuth.LocalLoginHandler)
			authRoute.POST("verify", lAuth.VerifyEmailHandler)
			authRoute.POST("reset/request", lAuth.RequestPasswordResetHandler)
			authRoute.POST("reset", lAuth.ResetPasswordHandler)
			authRoute.POST("google/applicant", gAuth.ApplicantGoogleLoginHandler)
		}

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.RequireAuth(resolver))

			// Job posts are readable by every authenticated role
			jobPostRoute := needAuth.Group("/jobpost")
			{
				jobPostRoute.GET("", jobCtl.List)
				jobPostRoute.GET(":id", jobCtl.Get)
				jobPostRoute.POST("", middleware.CheckRole(model.RoleCompany), jobCtl.Create)
			}

			needCompanyAdmin := needAuth.Group("")
			{
				needCompanyAdmin.Use(middleware.CheckRole(model.RoleCompany, model.RoleAdmin))
				needCompanyAdmin.PATCH("jobpost/:id", jobCtl.Edit)
				needCompanyAdmin.PUT("jobpost/:id/close", jobCtl.Close)
				needCompanyAdmin.DELETE("jobpost/:id", jobCtl.Delete)
			}

			// Application lifecycle
			needAuth.POST("job/:job_id/apply", middleware.CheckRole(model.RoleApplicant), applicationCtl.Apply)
			applicationRoute := needAuth.Group("/application")
			{
				applicationRoute.GET("", applicationCtl.List)
				applicationRoute.GET(":id", applicationCtl.Get)
				applicationRoute.GET("job/:job_id",
					middleware.CheckRole(model.RoleStaff, model.RoleCompany, model.RoleAdmin),
					applicationCtl.ListForJob)
				applicationRoute.PUT(":id",
					middleware.CheckRole(model.RoleStaff, model.RoleCompany, model.RoleAdmin),
					applicationCtl.UpdateStatus)
				applicationRoute.DELETE(":id", middleware.CheckRole(model.RoleApplicant), applicationCtl.Withdraw)
			}

			// Notifications
			notificationRoute := needAuth.Group("/notification")
			{
				notificationRoute.GET("", notificationCtl.ListMine)
				notificationRoute.PUT(":id/read", notificationCtl.MarkRead)
				notificationRoute.POST("", middleware.CheckRole(model.RoleAdmin, model.RoleStaff), notificationCtl.Create)
			}

			// Applicant routes
			needApplicant := needAuth.Group("")
			{
				needApplicant.Use(middleware.CheckRole(model.RoleApplicant))
				needApplicant.GET("applicant/myprofile", profileCtl.GetMyApplicantProfile)
				needApplicant.PATCH("applicant/profile", profileCtl.EditApplicantProfile)
				needApplicant.POST("resume", middleware.SizeLimit(10<<20), resumeCtl.Upload)
				needApplicant.GET("resume", resumeCtl.ListMine)
				needApplicant.DELETE("resume/:id", resumeCtl.Delete)
				needApplicant.POST("savedjob/:job_id", savedJobCtl.Save)
				needApplicant.GET("savedjob", savedJobCtl.ListMine)
				needApplicant.DELETE("savedjob/:job_id", savedJobCtl.Unsave)
			}
			needAuth.GET("resume/:id", resumeCtl.Download)

			// Company routes
			companyRoute := needAuth.Group("/company")
			{
				companyRoute.GET(":company_id", profileCtl.GetCompany)
				companyRoute.Use(middleware.CheckRole(model.RoleCompany))
				companyRoute.GET("myprofile", profileCtl.GetMyCompanyProfile)
				companyRoute.PATCH("profile", profileCtl.EditCompanyProfile)
				companyRoute.POST("staff", profileCtl.CreateStaff)
				companyRoute.GET("staff", profileCtl.ListStaff)
				companyRoute.PUT("staff/:staff_id", profileCtl.SetStaffActive)
			}

			// Chat
			chatRoute := needAuth.Group("/chat")
			{
				chatRoute.POST("", chatCtl.Open)
				chatRoute.GET("", chatCtl.ListMine)
				chatRoute.GET(":id/messages", chatCtl.ListMessages)
				chatRoute.POST(":id/messages", chatCtl.PostMessage)
			}

			// Admin routes
			needAdmin := needAuth.Group("/admin")
			{
				needAdmin.Use(middleware.CheckRole(model.RoleAdmin))
				needAdmin.GET("companies", adminCtl.ListCompanies)
				needAdmin.PATCH("verify-company/:company_id", adminCtl.VerifyCompany)
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// HelloWorldHandler handle request by return message "Hello World"
func (s *MyServer) HelloWorldHandler(c *gin.Context) {
	resp := make(map[string]string)
	resp["message"] = "Hello World"

	c.JSON(http.StatusOK, resp)
}

func (s *MyServer) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.DB.Health())
}
