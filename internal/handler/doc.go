// Package handler serves the placement engine over a chi router.
//
// Every mutation goes through service.Planner; handlers never touch the
// registry directly. JSON errors use ErrorResponse.
//
// # Placement responses
//
// PUT /api/devices/{id}/placement/{phase} always answers with the
// domain.PlaceResult. The status code follows its kind: 200 on success,
// 404 for DeviceNotFound or RackNotFound, 422 for OutOfBounds and 409 for
// SlotConflict.
//
// # Middleware
//
// Requests pass through chi's RequestID and RealIP, then RequestLogger
// (zerolog), chi's Recoverer, CORS and, when a recorder is given,
// Instrument, which labels metrics by route pattern. RequestLogger sits
// outside Recoverer so a recovered panic is still logged as a 500.
package handler
