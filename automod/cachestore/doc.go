// Component for caching platform lookups (as JSON strings) with a fixed TTL and purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// The discord client uses this to avoid repeating REST fallbacks (eg, listing a guild's channels when the gateway state cache is cold).
package cachestore
