// Package source fetches course steps from the learning backend.
//
// The backend lists a course's steps page by page:
//
//	GET {base}/courses/{course}/steps?page=1&page_size=20
//	{"items": [{"id": "...", "status": "COMPLETED", "progress_percentage": 100}], "next_page": 2}
//
// [Client.FetchAll] follows next_page until it is null and returns the
// concatenation, which is what the layout engine expects: it is always
// re-run over every step fetched so far. Pages are cached for a short time
// and transient failures (transport errors, 5xx) are retried with backoff.
package source
