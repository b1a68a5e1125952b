package controller

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"takarawalk_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ProxyController relays remote avatar and puzzle images so the
// frontend can draw them onto a canvas without tainting it.
type ProxyController struct {
	client *http.Client
}

func NewProxyController() *ProxyController {
	return &ProxyController{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// @Summary Proxy an image
// @Description Fetch a remote image and serve it with permissive CORS headers
// @Tags system
// @Param url query string true "Image URL"
// @Router /api/proxy-image [get]
func (ctl *ProxyController) ProxyImage(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		util.BadRequest(c, "url query parameter is required")
		return
	}

	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		util.BadRequest(c, "only http and https URLs are supported")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		util.BadRequest(c, "invalid url")
		return
	}

	resp, err := ctl.client.Do(req)
	if err != nil {
		util.Error(c, http.StatusBadGateway, "failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		util.Error(c, http.StatusBadGateway, "upstream returned an error")
		return
	}

	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", "public, max-age=86400")
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, resp.Body)
}
