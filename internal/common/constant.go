package common

// DeviceIDHeaderName is the gRPC metadata key carrying the calling device's
// id; the server uses it to key per-device rate limits.
const DeviceIDHeaderName = "x-device-id"

// UserIDHeaderName is the gRPC metadata key carrying the user the device is
// syncing for. It is informational only; requests are not authenticated.
const UserIDHeaderName = "x-user-id"
