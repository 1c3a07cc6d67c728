package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/middlewares"
	"storefront/models"
)

func TestAdminCategoryManagement(t *testing.T) {
	f := newAPIFixture(t)
	admin := map[string]string{"Authorization": "Bearer " + f.adminToken(t)}

	w := f.do(http.MethodPost, "/admin/categories", gin.H{"name": "Tea"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tea models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tea))

	w = f.do(http.MethodPost, "/admin/categories", gin.H{"name": "Green", "parentId": tea.ID}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var green models.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &green))

	w = f.do(http.MethodGet, fmt.Sprintf("/categories/%d/children", tea.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"slug":"green"`)

	teaPath := fmt.Sprintf("/admin/categories/%d", tea.ID)
	w = f.do(http.MethodPatch, teaPath, gin.H{"slug": "coffee"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPatch, teaPath, gin.H{"name": "Loose Tea"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = f.do(http.MethodGet, fmt.Sprintf("/categories/%d", tea.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Loose Tea"`)

	w = f.do(http.MethodDelete, teaPath, nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "subcategories")

	w = f.do(http.MethodDelete, fmt.Sprintf("/admin/categories/%d", green.ID), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodDelete, teaPath, nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(http.MethodGet, fmt.Sprintf("/categories/%d", tea.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	user := map[string]string{middlewares.InitDataHeader: initData(t, 42)}
	w = f.do(http.MethodDelete, fmt.Sprintf("/admin/categories/%d", f.product.CategoryID), nil, user)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminUsersList(t *testing.T) {
	f := newAPIFixture(t)
	for _, id := range []int64{41, 42} {
		w := f.do(http.MethodPost, "/auth/telegram", gin.H{"initData": initData(t, id)}, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(http.MethodGet, "/admin/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := map[string]string{"Authorization": "Bearer " + f.adminToken(t)}
	w = f.do(http.MethodGet, "/admin/users?page=1&limit=1", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Users []struct {
			TelegramID int64 `json:"telegramId"`
		} `json:"users"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Users, 1)
}
