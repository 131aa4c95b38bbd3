package controllers

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
)

// formValue reads key from the form body, falling back to the query string.
func formValue(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

// imageFromRequest returns the request's image as a URL or data URI. The
// uploaded file wins over image_url, which wins over image_base64. It
// returns "" when the request carries no image.
func imageFromRequest(c *gin.Context) (string, error) {
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			return "", err
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}
		subtype := contentType[strings.LastIndex(contentType, "/")+1:]

		return fmt.Sprintf("data:image/%v;base64,%v", subtype, base64.StdEncoding.EncodeToString(data)), nil
	}

	if url := formValue(c, "image_url"); url != "" {
		return url, nil
	}

	if data := formValue(c, "image_base64"); data != "" {
		if strings.HasPrefix(data, "data:image") {
			return data, nil
		}
		return "data:image/jpeg;base64," + data, nil
	}

	return "", nil
}
