package interfaces

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for HTTP requests against upstream
// finance providers (retries, mandatory User-Agent).
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request to the specified URL with query parameters.
	// Returns the response body as bytes or an error.
	Get(url string, params map[string]string) ([]byte, error)
}
