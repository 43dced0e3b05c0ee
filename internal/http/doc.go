// Package http provides HTTP handlers and middleware for the meeting API.
//
// The router exposes the following endpoints:
//   - GET /meetings, POST /meetings: list upcoming meetings and create a new
//     meeting. Creation takes the host profile alongside the meeting fields and
//     confirms the host's attendance atomically with the meeting itself.
//   - GET /meetings/{id}: a single meeting summary including confirmed counts
//     and remaining slots.
//   - PUT /meetings/{id}/start: move the meeting to a new start time. Pending
//     reminders are rescheduled to match.
//   - DELETE /meetings/{id}: cancel the meeting and withdraw its reminders.
//   - POST /meetings/{id}/registrations: register the user carried in the body;
//     responds with a confirmed or waitlisted outcome.
//   - DELETE /meetings/{id}/registrations/{userID}: withdraw a registration.
//   - GET /users/{id}/meetings: upcoming meetings the user is registered for.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
