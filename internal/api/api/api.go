package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"stagedoor/cmd/middleware"
	"stagedoor/internal/repo"
	"stagedoor/internal/service"
)

type Routers struct {
	Service service.Service
	Repo    repo.Repository
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	// Identify runs on every route: guest endpoints stay open, while member
	// requests carry a resolved profile for the handlers to use.
	app.Use(middleware.Identify(r.Repo))

	apiGroup := app.Group("/v1")

	// Public reads and guest-friendly writes.
	apiGroup.GET("/events", r.Service.ListEvents)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.GET("/events/:id/occurrences", r.Service.ListOccurrences)
	apiGroup.GET("/events/:id/calendar.ics", r.Service.ExportCalendar)
	apiGroup.GET("/events/:id/lineup", r.Service.GetLineup)
	apiGroup.POST("/events/:id/rsvps", r.Service.CreateRSVP)
	apiGroup.POST("/events/:id/timeslots/:slotID/claims", r.Service.ClaimTimeslot)
	apiGroup.GET("/venues", r.Service.ListVenues)
	apiGroup.GET("/venues/:id", r.Service.GetVenue)

	// Member-only routes. Finer checks (host role, ownership, admin) happen
	// in the handlers.
	authed := apiGroup.Group("")
	authed.Use(middleware.RequireAuth())

	authed.POST("/events", r.Service.CreateEvent)
	authed.PATCH("/events/:id", r.Service.UpdateEvent)
	authed.PUT("/events/:id/overrides/:date", r.Service.UpsertOverride)
	authed.POST("/events/:id/timeslots/generate", r.Service.GenerateTimeslots)
	authed.PUT("/events/:id/lineup", r.Service.SetNowPlaying)
	authed.GET("/events/:id/rsvps", r.Service.ListRSVPs)
	authed.POST("/events/:id/publish", r.Service.PublishEvent)
	authed.POST("/events/:id/unpublish", r.Service.UnpublishEvent)

	authed.DELETE("/claims/:id", r.Service.RemoveClaim)
	authed.POST("/claims/:id/status", r.Service.SetClaimStatus)

	authed.POST("/venues", r.Service.CreateVenue)
	authed.PATCH("/venues/:id", r.Service.UpdateVenue)

	authed.POST("/ownership-claims", r.Service.CreateOwnershipClaim)
	authed.GET("/ownership-claims", r.Service.ListOwnershipClaims)
	authed.POST("/ownership-claims/:id/approve", r.Service.ApproveOwnershipClaim)
	authed.POST("/ownership-claims/:id/reject", r.Service.RejectOwnershipClaim)

	return app
}
