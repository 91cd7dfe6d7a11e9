// Package media attributes attention on embedded video players to the
// channel that published the video.
//
// The host forwards the player's telemetry traffic: YouTube watch-time
// pings arrive through OnXHRLoad as parsed query parts, Twitch tracking
// events arrive through OnPostData as base64 JSON. Each ping is turned
// into a visit on a synthetic publisher (youtube#channel:NAME or
// twitch#author:NAME) and handed to the publisher tracker.
package media
