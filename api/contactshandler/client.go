package contactshandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ruteri/tee-contact-attestor/api"
	"github.com/ruteri/tee-contact-attestor/enclave"
)

// RequestError is returned when the enclave answers with a non-200 status.
// Response carries the decoded error body when the server sent one.
type RequestError struct {
	StatusCode int
	Response   api.ErrorResponse
}

func (e *RequestError) Error() string {
	if e.Response.Kind != "" {
		return fmt.Sprintf("request failed with code %d (%s): %s", e.StatusCode, e.Response.Kind, e.Response.Error)
	}
	return fmt.Sprintf("request failed with code %d: %s", e.StatusCode, e.Response.Error)
}

// ProcessData uploads csv to the enclave at baseURL and returns the signed
// contact batch. The envelope is not verified; callers should check it with
// intent.Verify against the attested public key.
func ProcessData(baseURL, csv string) (*enclave.ContactsEnvelope, error) {
	reqBody, err := json.Marshal(api.ProcessDataRequest{Payload: api.CsvRequest{CSV: csv}})
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/process_data", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var env enclave.ContactsEnvelope
	if err := doJSON(req, &env); err != nil {
		return nil, fmt.Errorf("could not process data: %w", err)
	}
	return &env, nil
}

// PhoneHash asks the enclave at baseURL for the signed digest of phone.
func PhoneHash(baseURL, phone string) (*enclave.PhoneDigestEnvelope, error) {
	req, err := http.NewRequest(
		http.MethodGet,
		fmt.Sprintf("%s/api/public/phone_hash/%s", baseURL, url.PathEscape(phone)),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}

	var env enclave.PhoneDigestEnvelope
	if err := doJSON(req, &env); err != nil {
		return nil, fmt.Errorf("could not request phone hash: %w", err)
	}
	return &env, nil
}

func doJSON(req *http.Request, out any) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		reqErr := &RequestError{StatusCode: resp.StatusCode}
		if json.Unmarshal(body, &reqErr.Response) != nil || reqErr.Response.Error == "" {
			reqErr.Response.Error = string(bytes.TrimSpace(body))
		}
		return reqErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
