package hh

import "fmt"

// unifyDomainGoalHeads relates a domain goal against a candidate
// clause's (already instantiated) consequence: the two must be the
// same kind of domain goal about the same trait/ADT/etc., and every
// generic-argument position is related invariantly (Rust's own
// generics carry no user-visible variance at the trait-matching
// level; that only enters through zipTy's ADT/fn-pointer recursion
// once relate descends into the argument types themselves).
func unifyDomainGoalHeads(table *InferenceTable, goal, consequence *Goal) (*UnificationResult, error) {
	result := &UnificationResult{}

	relateArgs := func(as, bs []GenericArg) error {
		if len(as) != len(bs) {
			return newUnifyError(ErrArityMismatch, "domain goal argument count mismatch: %d vs %d", len(as), len(bs))
		}
		for i := range as {
			r, err := table.Relate(Invariant, as[i], bs[i])
			if err != nil {
				return err
			}
			result.absorb(r)
		}
		return nil
	}

	switch ga := goal.Data().(type) {
	case ImplementedTraitGoal:
		gc, ok := consequence.Data().(ImplementedTraitGoal)
		if !ok || ga.Trait != gc.Trait {
			return nil, newUnifyError(ErrHeadMismatch, "trait goal head mismatch")
		}
		if err := relateArgs(ga.Args, gc.Args); err != nil {
			return nil, err
		}

	case ProjectionEqGoal:
		gc, ok := consequence.Data().(ProjectionEqGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "projection-eq goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Projection), TyArg(gc.Projection))
		if err != nil {
			return nil, err
		}
		result.absorb(r)
		r, err = table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case NormalizeGoal:
		gc, ok := consequence.Data().(NormalizeGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "normalize goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Projection), TyArg(gc.Projection))
		if err != nil {
			return nil, err
		}
		result.absorb(r)
		r, err = table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case WellFormedTyGoal:
		gc, ok := consequence.Data().(WellFormedTyGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "WF(type) goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case WellFormedTraitGoal:
		gc, ok := consequence.Data().(WellFormedTraitGoal)
		if !ok || ga.Trait != gc.Trait {
			return nil, newUnifyError(ErrHeadMismatch, "WF(trait) goal head mismatch")
		}
		if err := relateArgs(ga.Args, gc.Args); err != nil {
			return nil, err
		}

	case FromEnvTyGoal:
		gc, ok := consequence.Data().(FromEnvTyGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "FromEnv(type) goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case FromEnvTraitGoal:
		gc, ok := consequence.Data().(FromEnvTraitGoal)
		if !ok || ga.Trait != gc.Trait {
			return nil, newUnifyError(ErrHeadMismatch, "FromEnv(trait) goal head mismatch")
		}
		if err := relateArgs(ga.Args, gc.Args); err != nil {
			return nil, err
		}

	case IsLocalGoal:
		gc, ok := consequence.Data().(IsLocalGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "IsLocal goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case IsUpstreamGoal:
		gc, ok := consequence.Data().(IsUpstreamGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "IsUpstream goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case DownstreamTypeGoal:
		gc, ok := consequence.Data().(DownstreamTypeGoal)
		if !ok {
			return nil, newUnifyError(ErrHeadMismatch, "DownstreamType goal head mismatch")
		}
		r, err := table.Relate(Invariant, TyArg(ga.Ty), TyArg(gc.Ty))
		if err != nil {
			return nil, err
		}
		result.absorb(r)

	case CompatibleModeGoal:
		if _, ok := consequence.Data().(CompatibleModeGoal); !ok {
			return nil, newUnifyError(ErrHeadMismatch, "CompatibleMode goal head mismatch")
		}

	case ObjectSafeGoal:
		gc, ok := consequence.Data().(ObjectSafeGoal)
		if !ok || ga.Trait != gc.Trait {
			return nil, newUnifyError(ErrHeadMismatch, "ObjectSafe goal head mismatch")
		}

	default:
		panic(fmt.Sprintf("hh: unifyDomainGoalHeads given non-domain goal %T", ga))
	}

	return result, nil
}
