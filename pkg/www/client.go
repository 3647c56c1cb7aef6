package www

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// FetchJSON performs a GET, and decodes the JSON response into output.
// Any status other than 200 is returned as an error, which includes the response body.
func FetchJSON(ctx context.Context, url string, output any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respB, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("HTTP error %v (%v)", resp.Status, string(respB))
	}
	return json.NewDecoder(resp.Body).Decode(output)
}
