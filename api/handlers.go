package api

import (
	"github.com/inkwell-blog/backend/auth"
	"github.com/inkwell-blog/backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, tokens auth.TokenIssuer) *routeHandlers {
	return &routeHandlers{
		authHandler: newAuthHandler(database.UserRepo(), tokens),
		blogHandler: newBlogHandler(database.BlogRepo(), database.UserRepo()),
		userHandler: newUserHandler(database.BlogRepo()),
	}
}
