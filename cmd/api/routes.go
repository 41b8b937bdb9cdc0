package main

import (
	"github.com/gin-gonic/gin"

	"github.com/efvillarin/sis-api/internal/handler"
	"github.com/efvillarin/sis-api/internal/middleware"
	"github.com/efvillarin/sis-api/internal/models"
	"github.com/efvillarin/sis-api/internal/service"
	"github.com/efvillarin/sis-api/pkg/config"
)

type routeHandlers struct {
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	students      *handler.StudentHandler
	teachers      *handler.TeacherHandler
	sections      *handler.SectionHandler
	subjects      *handler.SubjectHandler
	enrollments   *handler.EnrollmentHandler
	periods       *handler.EnrollmentPeriodHandler
	masterlists   *handler.MasterlistHandler
	grades        *handler.GradeHandler
	schedules     *handler.ScheduleHandler
	messages      *handler.MessageHandler
	notifications *handler.NotificationHandler
	materials     *handler.MaterialHandler
	dashboard     *handler.DashboardHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, authSvc *service.AuthService, h routeHandlers) {
	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", h.auth.Logout)
		authed.POST("/change-password", h.auth.ChangePassword)
		authed.GET("/me", h.auth.Me)
	}

	// The enrollment window is public so the login page can show whether
	// intake is open before a student signs in.
	api.GET("/enrollment-periods/current", middleware.OptionalJWT(authSvc), h.periods.Current)

	// Signed download links carry their own authorization.
	api.GET("/materials/download", middleware.OptionalJWT(authSvc), h.materials.Download)

	protected := api.Group("", middleware.JWT(authSvc))

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), h.users.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), h.users.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), h.users.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.users.Update)
		users.PATCH("/:id/active", middleware.RequireRoles(models.RoleAdmin), h.users.SetActive)
	}

	students := protected.Group("/students")
	{
		students.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.students.List)
		students.GET("/me", middleware.RequireRoles(models.RoleStudent), h.students.Me)
		students.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.students.Get)
		students.POST("", middleware.RequireRoles(models.RoleAdmin), h.students.Create)
		students.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.students.Update)
		students.PATCH("/:id/promotion", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.students.SetPromoted)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.teachers.List)
		teachers.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.teachers.Get)
		teachers.POST("", middleware.RequireRoles(models.RoleAdmin), h.teachers.Create)
		teachers.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.teachers.Update)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.POST("", h.enrollments.Submit)
		enrollments.GET("/form-defaults", h.enrollments.FormDefaults)
		enrollments.GET("", middleware.RequireRoles(models.RoleAdmin), h.enrollments.List)
		enrollments.GET("/counts", middleware.RequireRoles(models.RoleAdmin), h.enrollments.Counts)
		enrollments.GET("/unenrolled", middleware.RequireRoles(models.RoleAdmin), h.enrollments.Unenrolled)
		enrollments.GET("/:id", middleware.RequireRoles(models.RoleAdmin), h.enrollments.Get)
		enrollments.POST("/:id/accept", middleware.RequireRoles(models.RoleAdmin), h.enrollments.Accept)
		enrollments.POST("/:id/decline", middleware.RequireRoles(models.RoleAdmin), h.enrollments.Decline)
		enrollments.POST("/:id/not-enrolled", middleware.RequireRoles(models.RoleAdmin), h.enrollments.MarkNotEnrolled)
		enrollments.POST("/:id/drop", middleware.RequireRoles(models.RoleAdmin), h.enrollments.Drop)
	}

	periods := protected.Group("/enrollment-periods")
	{
		periods.GET("", middleware.RequireRoles(models.RoleAdmin), h.periods.List)
		periods.PUT("", middleware.RequireRoles(models.RoleAdmin), h.periods.Upsert)
		periods.PATCH("/:id/active", middleware.RequireRoles(models.RoleAdmin), h.periods.SetActive)
	}

	sections := protected.Group("/sections")
	{
		sections.GET("", h.sections.List)
		sections.GET("/by-grade", h.sections.ByGrade)
		sections.GET("/:id", h.sections.Get)
		sections.POST("", middleware.RequireRoles(models.RoleAdmin), h.sections.Create)
		sections.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.sections.Update)
		sections.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.sections.Delete)
	}

	masterlists := protected.Group("/masterlists")
	{
		masterlists.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.masterlists.List)
		masterlists.GET("/my-assignment", middleware.RequireRoles(models.RoleStudent), h.masterlists.MyAssignment)
		masterlists.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.masterlists.Get)
		masterlists.POST("/ensure", middleware.RequireRoles(models.RoleAdmin), h.masterlists.Ensure)
		masterlists.POST("/:id/students", middleware.RequireRoles(models.RoleAdmin), h.masterlists.AddStudent)
		masterlists.DELETE("/:id/students/:userId", middleware.RequireRoles(models.RoleAdmin), h.masterlists.RemoveStudent)
		masterlists.PUT("/:id/adviser", middleware.RequireRoles(models.RoleAdmin), h.masterlists.SetAdviser)
		masterlists.PUT("/:id/subject-teachers", middleware.RequireRoles(models.RoleAdmin), h.masterlists.AssignSubjectTeacher)
		masterlists.GET("/:id/export", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.masterlists.ExportCSV)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", h.subjects.List)
		subjects.GET("/:id", h.subjects.Get)
		subjects.POST("", middleware.RequireRoles(models.RoleAdmin), h.subjects.Create)
		subjects.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.subjects.Update)
		subjects.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.subjects.Delete)
		subjects.POST("/:id/teachers", middleware.RequireRoles(models.RoleAdmin), h.subjects.AssignTeacher)
		subjects.DELETE("/:id/teachers/:teacherId", middleware.RequireRoles(models.RoleAdmin), h.subjects.UnassignTeacher)
	}

	grades := protected.Group("/grades")
	{
		grades.POST("", middleware.RequireRoles(models.RoleTeacher), h.grades.PostMark)
		grades.PUT("/comment", middleware.RequireRoles(models.RoleTeacher), h.grades.SetComment)
		grades.GET("/me", middleware.RequireRoles(models.RoleStudent), h.grades.MyReportCard)
		grades.GET("/:studentId/report-card", h.grades.ReportCard)
		grades.GET("/:studentId/report-card/export", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.grades.ExportPDF)
	}

	schedules := protected.Group("/schedules")
	{
		schedules.GET("", h.schedules.List)
		schedules.POST("", middleware.RequireRoles(models.RoleAdmin), h.schedules.Create)
		schedules.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.schedules.Update)
		schedules.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.schedules.Delete)
		schedules.GET("/teachers/:teacherId/load", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.schedules.TeacherLoad)
		schedules.GET("/teachers/:teacherId/conflicts", middleware.RequireRoles(models.RoleAdmin), h.schedules.TeacherConflicts)
	}

	messages := protected.Group("/messages")
	{
		messages.POST("", h.messages.Send)
		messages.GET("/inbox", h.messages.Inbox)
		messages.GET("/unread-count", h.messages.UnreadCount)
		messages.GET("/conversations/:peerId", h.messages.Conversation)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.POST("/broadcast", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.notifications.Broadcast)
		notifications.GET("", h.notifications.List)
		notifications.GET("/unread-count", h.notifications.UnreadCount)
		notifications.POST("/read-all", h.notifications.MarkAllRead)
		notifications.POST("/:id/read", h.notifications.MarkRead)
	}

	materials := protected.Group("/materials")
	{
		materials.GET("", h.materials.List)
		materials.GET("/:id", h.materials.Get)
		materials.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.materials.Upload)
		materials.POST("/:id/download-link", h.materials.DownloadLink)
		materials.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), h.materials.Delete)
	}

	protected.GET("/dashboard/summary", middleware.RequireRoles(models.RoleAdmin), h.dashboard.Summary)
}
