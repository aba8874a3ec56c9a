package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/thesis-selection-backend/controllers"
	"github.com/vnkhanh/thesis-selection-backend/middleware"
	"github.com/vnkhanh/thesis-selection-backend/models"
	"github.com/vnkhanh/thesis-selection-backend/ws"
)

func SetupRouter(r *gin.Engine, db *gorm.DB) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Trang giới thiệu giảng viên, không cần đăng nhập
	api.GET("/teachers", controllers.GetTeachers)
	api.GET("/teachers/:id", controllers.GetTeacherDetail)

	user := api.Group("/user")
	{
		user.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db))
		user.GET("/profile", controllers.GetProfile)
		user.PUT("/profile", controllers.UpdateProfile)
		user.PUT("/password", controllers.ChangePassword)
	}

	student := api.Group("/student")
	{
		student.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db), middleware.RequireRoles(string(models.RoleStudent)))

		//Chọn đề tài
		student.GET("/topics/available", controllers.GetAvailableTopics)
		student.POST("/topics/select", controllers.SelectTopic)
		student.DELETE("/topics/cancel", controllers.CancelSelection)
		student.GET("/topics/my-selection", controllers.GetMySelection)
		student.GET("/topics/selection-status", controllers.GetSelectionStatus)
	}

	teacher := api.Group("/teacher")
	{
		teacher.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db), middleware.RequireRoles(string(models.RoleTeacher), string(models.RoleAdmin)))

		//Quản lý đề tài
		teacher.GET("/topics", controllers.GetMyTopics)
		teacher.POST("/topics", controllers.CreateTopic)
		teacher.GET("/topics/export", controllers.ExportTopics)
		teacher.GET("/topics/:id", controllers.GetTopicDetail)
		teacher.PUT("/topics/:id", controllers.UpdateTopic)
		teacher.PUT("/topics/:id/status", controllers.UpdateTopicStatus)

		//Duyệt đăng ký đề tài
		teacher.PUT("/selections/:id", controllers.ReviewSelection)
		teacher.PUT("/topics/:id/selections/:studentId", controllers.ReviewTopicSelection)
	}

	thesis := api.Group("/thesis")
	{
		thesis.Use(middleware.AuthMiddleware(), middleware.DBMiddleware(db))

		thesis.POST("/submit", middleware.RequireRoles(string(models.RoleStudent)), controllers.SubmitThesis)
		thesis.GET("/my-thesis", middleware.RequireRoles(string(models.RoleStudent)), controllers.GetMyThesis)
		thesis.GET("/teacher/list", middleware.RequireRoles(string(models.RoleTeacher)), controllers.GetTeacherTheses)
		thesis.PUT("/:id/review", middleware.RequireRoles(string(models.RoleTeacher)), controllers.ReviewThesis)
		thesis.POST("/:id/annotations", middleware.RequireRoles(string(models.RoleTeacher)), controllers.AnnotateThesis)
		thesis.GET("/download/:id", controllers.DownloadThesis)
	}

	r.GET("/ws/status", ws.HandleStatusWebSocket)

	return r
}
