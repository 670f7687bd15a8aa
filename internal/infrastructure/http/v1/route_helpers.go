package v1

import (
	"github.com/gin-gonic/gin"
)

// SequenceRouteHandler defines the allocation endpoints.
type SequenceRouteHandler interface {
	Generate(c *gin.Context)
	GenerateWithSetting(c *gin.Context)
	Current(c *gin.Context)
}

// ConfigRouteHandler defines the configuration endpoints.
type ConfigRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Put(c *gin.Context)
	Delete(c *gin.Context)
}

// PermissionFunc builds the guard for one permission code.
type PermissionFunc func(permission string) gin.HandlerFunc

// RegisterSequenceRoutes registers the allocation routes on group.
func RegisterSequenceRoutes(group *gin.RouterGroup, handler SequenceRouteHandler, perm PermissionFunc, generate, read string) {
	group.POST("", perm(generate), handler.Generate)
	group.POST("/with-setting", perm(generate), handler.GenerateWithSetting)
	group.GET("/current", perm(read), handler.Current)
}

// RegisterConfigRoutes registers the configuration routes on group.
func RegisterConfigRoutes(group *gin.RouterGroup, handler ConfigRouteHandler, perm PermissionFunc, read, write string) {
	group.GET("", perm(read), handler.List)
	group.GET("/:typeCode", perm(read), handler.Get)
	group.PUT("/:typeCode", perm(write), handler.Put)
	group.DELETE("/:typeCode", perm(write), handler.Delete)
}
