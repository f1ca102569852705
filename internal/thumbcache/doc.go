// Package thumbcache keeps the thumbnails of a long paginated document
// in a bounded cache and renders only the pages the viewport needs.
//
// A Controller owns one control goroutine. The cache store, the
// scheduler, the debouncer and the last known viewport are only touched
// from that goroutine; host calls are marshaled onto it. Rendering runs
// on a fixed-size worker pool and every result is tagged with the
// session token of the document load that requested it. Results of a
// superseded load are dropped before they reach the store.
//
// Page flow:
//
//	OnViewportChanged -> Debouncer -> ComputeVisibleRange
//	    -> Scheduler.RequestVisible -> Store.EvictIfNeeded -> Pool
//	    -> Scheduler.Complete -> Store.StoreRendered -> Sink.OnSlotRendered
package thumbcache
