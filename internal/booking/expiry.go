package booking

import (
    "context"
    "log"
)

// expiryBatchSize bounds one sweep so a large backlog is worked off in
// slices instead of one long scan.
const expiryBatchSize = 500

// ExpireStalePoints retires point grants whose expiry has passed:
// each grant is marked used and its amount removed from the owner's
// cached balance, one small transaction per grant.  A grant consumed
// by a racing booking is skipped.  The sweep is idempotent and safe to
// run on any schedule; it returns how many grants were expired.
func (e *Engine) ExpireStalePoints(ctx context.Context) (int, error) {
    expired := 0
    for {
        ids, err := e.points.ExpiredGrantIDs(ctx, e.now(), expiryBatchSize)
        if err != nil {
            return expired, err
        }
        if len(ids) == 0 {
            return expired, nil
        }
        passExpired := 0
        for _, id := range ids {
            ok, err := e.points.ExpireGrant(ctx, id, e.now())
            if err != nil {
                log.Printf("points expiry: grant %d: %v", id, err)
                continue
            }
            if ok {
                expired++
                passExpired++
            }
        }
        // A full batch that made no progress would be refetched as-is;
        // leave whatever remains to the next scheduled sweep.
        if len(ids) < expiryBatchSize || passExpired == 0 {
            return expired, nil
        }
    }
}
