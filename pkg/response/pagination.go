package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageParams are the pagination query parameters used by all admin lists.
type PageParams struct {
	PageIndex int // 0-based
	PageSize  int
}

// Offset returns the row offset for the page.
func (p PageParams) Offset() int {
	return p.PageIndex * p.PageSize
}

// ParsePageParams reads pageIndex/pageSize from the query string, clamping
// pageSize to [1, 100] and pageIndex to >= 0.
func ParsePageParams(c *gin.Context) PageParams {
	pageIndex, _ := strconv.Atoi(c.DefaultQuery("pageIndex", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return PageParams{PageIndex: pageIndex, PageSize: pageSize}
}

// PageBody is the list response envelope the admin console expects.
type PageBody struct {
	Data      interface{} `json:"data"`
	TotalInDB int         `json:"totalInDb"`
	PageIndex int         `json:"pageIndex"`
	PageSize  int         `json:"pageSize"`
}

// Page sends a 200 paginated list response.
func Page(c *gin.Context, data interface{}, total int, params PageParams) {
	c.JSON(http.StatusOK, PageBody{
		Data:      data,
		TotalInDB: total,
		PageIndex: params.PageIndex,
		PageSize:  params.PageSize,
	})
}
