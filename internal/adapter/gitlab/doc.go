// Package gitlab adapts the GitLab REST API to the review ports. It
// fetches merge request metadata and changed files, and posts summary
// notes and position-anchored diff discussions.
package gitlab
