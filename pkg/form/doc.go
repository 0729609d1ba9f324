// Package form validates batches of rows the way a formset validates many
// form submissions.
//
// A Form cleans every row field by field (default, then the row's value,
// then an optional clean hook) and validates the cleaned frame against a
// validation.Schema. A ModelForm derives both the defaults and the schema
// from a model definition, loading related keys through a shared
// relations.Cache:
//
//	cache := relations.New(gormstore.NewSource(db))
//	mf, err := form.NewModelForm(ctx, form.Meta{Model: article}, rows,
//		form.WithRelationCache(cache))
//	if err != nil {
//		return err
//	}
//	ok, err := mf.IsValid(ctx)
package form
