/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launix-de/zeppelin/internal/zerr"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// respondError maps any error into its HTTP status, per zerr.Kind's single
// status-code table, and aborts the request.
func respondError(c *gin.Context, err error) {
	var ze *zerr.Error
	status := http.StatusInternalServerError
	if errors.As(err, &ze) {
		status = ze.StatusCode()
	}
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error(), Status: status})
}

func validationError(c *gin.Context, msg string) {
	respondError(c, zerr.Validation(msg))
}
