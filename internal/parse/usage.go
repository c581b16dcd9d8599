package parse

const usageText = `arcrest restores a database from an archive created by arcdump.

Usage:
  arcrest [OPTION]... ARCHIVE

General options:
  -d, --dbname=PATH        restore directly into this SQLite database file
  -f, --file=FILENAME      output file name for the generated script
  -F, --format=c|d         archive format (should be automatic)
  -l, --list               print summarized TOC of the archive
  -v, --verbose            verbose mode
  --help                   show this help, then exit
  --version                output version information, then exit

Options controlling the restore:
  -a, --data-only          restore only the data, no schema
  -c, --clean              clean (drop) database objects before recreating
  -C, --create             include commands to create the target database
  -e, --exit-on-error      exit on error, default is to continue
  -I, --index=NAME         restore named index
  -j, --jobs=NUM           use this many parallel jobs for the data phase
  -L, --use-list=FILENAME  use table of contents from this file for
                           selecting/ordering output
  -n, --schema=NAME        restore only objects in this schema
  -O, --no-owner           skip restoration of object ownership
  -P, --function=NAME      restore named function
  -s, --schema-only        restore only the schema, no data
  -S, --superuser=NAME     superuser name to use for disabling triggers
  -t, --table=NAME         restore named table
  -T, --trigger=NAME       restore named trigger
  -x, --no-privileges      skip restoration of access privileges (grant/revoke)
  -1, --single-transaction restore as a single transaction
  --disable-triggers       disable triggers during data-only restore
  --no-data-for-failed-tables
                           do not restore data of tables that could not be
                           created
  --role=ROLENAME          do SET ROLE before restore
  --section=SECTION        restore named section (pre-data, data, or post-data)
`
