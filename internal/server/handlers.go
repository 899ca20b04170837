package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danielolaszy/starburst/internal/hierarchy"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/pkg/models"
)

type piQuery struct {
	PI string `form:"pi" binding:"required"`
}

type versionsQuery struct {
	Project string `form:"project" binding:"required"`
}

type relationshipsQuery struct {
	PI  string `form:"pi" binding:"required"`
	Key string `form:"key" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listVersions(c *gin.Context) {
	var q versionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeValidationError(c, err)
		return
	}

	listing, err := s.versions.List(c.Request.Context(), q.Project)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) sunburst(c *gin.Context) {
	var q piQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := s.traverse(c, q.PI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) hierarchyTree(c *gin.Context) {
	var q piQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := s.traverse(c, q.PI)
	if err != nil {
		writeError(c, err)
		return
	}

	root, err := hierarchy.Build(result)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pi":        result.PI,
		"truncated": result.Truncated,
		"warnings":  result.Warnings,
		"root":      root,
	})
}

func (s *Server) relationships(c *gin.Context) {
	var q relationshipsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeValidationError(c, err)
		return
	}

	result, err := s.traverse(c, q.PI)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hierarchy.ExtractRelationships(result, q.Key))
}

// traverse returns the traversal of pi, from cache when enabled. Truncated
// results are cached like complete ones; timeouts and errors are not.
func (s *Server) traverse(c *gin.Context, pi string) (*models.TraversalResult, error) {
	key := "sunburst:" + pi
	if s.cache != nil && s.opts.CacheTTL > 0 {
		var cached models.TraversalResult
		ok, err := s.cache.Get(key, &cached)
		if err != nil {
			logging.Warn("Failed to read sunburst cache", "pi", pi, "error", err)
		} else if ok {
			return &cached, nil
		}
	}

	result, err := s.traverser.Build(c.Request.Context(), pi)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.opts.CacheTTL > 0 {
		if err := s.cache.Set(key, result, s.opts.CacheTTL); err != nil {
			logging.Warn("Failed to write sunburst cache", "pi", pi, "error", err)
		}
	}
	return result, nil
}
