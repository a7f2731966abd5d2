/*
Package sqlcrt is the runtime used by generated SQL call sites.

Generated code issues parameterized SQL through one of two connection families
and gets results back in one of five shapes:

  - ExecuteNone: run for side effects only
  - ExecuteRowcount: number of rows affected
  - ExecuteOne: column 0 of the first row, nil when no row was produced
  - OneModel: the first row decoded into a struct, nil when no row was produced
  - ExecuteMany / ManyModel: a single-pass iter.Seq2 of scalars or structs

Connection is the blocking family (database/sql, see datasource/sql) and
AsyncConnection the context driven family (pgx, see datasource/postgres).
Query text always uses $1, $2, ... placeholders; adapters rewrite it when
their driver needs a different token.

Sequences returned by the Execute*Many operations hold a cursor open only while
they are being ranged over. Breaking out of the loop releases it:

	for id, err := range conn.ExecuteMany("select id from users where org = $1", org) {
		if err != nil {
			return err
		}
		if id == stop {
			break // cursor closed here
		}
	}
*/
package sqlcrt
