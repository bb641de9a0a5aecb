package importer

import (
	"context"

	"github.com/ha1tch/wxrimport/wxr"
)

func (c *Controller) importTerm(ctx context.Context, t wxr.Term) error {
	key := termKey(t.Taxonomy, t.Slug)
	if localID, ok := c.State.ProcessedTerms[key]; ok {
		c.Log.Debug("term already imported", "taxonomy", t.Taxonomy, "slug", t.Slug, "local_id", localID)
		c.State.ProcessedTermsByWPID[t.TermID] = localID
		return nil
	}
	if localID, exists, err := c.Store.TermExists(ctx, t.Taxonomy, t.Slug); err != nil {
		return err
	} else if exists {
		c.State.ProcessedTerms[key] = localID
		c.State.ProcessedTermsByWPID[t.TermID] = localID
		return nil
	}
	localID, err := c.Store.InsertTerm(ctx, t)
	if err != nil {
		return err
	}
	c.State.ProcessedTerms[key] = localID
	c.State.ProcessedTermsByWPID[t.TermID] = localID
	c.Log.Info("imported term", "taxonomy", t.Taxonomy, "slug", t.Slug, "local_id", localID)
	return nil
}

func (c *Controller) importTermMeta(ctx context.Context, m wxr.TermMeta) error {
	localID, ok := c.State.ProcessedTermsByWPID[m.TermID]
	if !ok {
		c.Log.Warn("termmeta for unresolved term, dropped", "wp_term_id", m.TermID, "key", m.Key)
		return nil
	}
	return c.Store.AddTermMeta(ctx, localID, m.Key, m.Value)
}
