package api

import (
	"github.com/aigenthix/cms-backend/cache"
	"github.com/aigenthix/cms-backend/database"
	"github.com/aigenthix/cms-backend/services"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, cacheSvc *cache.Service, auth *services.AuthService, version string) *routeHandlers {
	blogService := services.NewBlogService(db.BlogRepo(), cacheSvc)

	return &routeHandlers{
		blogHandler:   newBlogHandler(blogService),
		authHandler:   newAuthHandler(auth),
		healthHandler: newHealthHandler(db.Pool(), cacheSvc, version),
	}
}
