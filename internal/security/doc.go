// Package security builds the read-only posture report behind
// schoolAuth's Engine.SecurityReport.
package security
