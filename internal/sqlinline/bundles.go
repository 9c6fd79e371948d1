package sqlinline

const QCreatePromptBundles = `--sql efccd8f4-67fc-48ce-9602-0bfc62faa34f
create table if not exists prompt_bundles (
  seq bigserial primary key,
  id text not null unique,
  setting_id text not null,
  used boolean not null default false,
  created_at timestamptz not null,
  payload jsonb not null
);
`

const QInsertPromptBundle = `--sql 2ff9fe20-a9a8-4fe9-b97f-c9d51de0a3ba
insert into prompt_bundles(id, setting_id, used, created_at, payload)
values ($1::text, $2::text, $3::boolean, $4::timestamptz, $5::jsonb);
`

const QTrimPromptBundles = `--sql 3c7762d8-b3b1-4427-800d-a523ab742cbd
delete from prompt_bundles
where seq <= coalesce((
  select seq from prompt_bundles
  order by seq desc
  offset $1::int
  limit 1
), 0);
`

const QListPromptBundles = `--sql 28ddd03d-7b7e-4897-bc8c-888af4c9883d
select payload, used
from prompt_bundles
where ($1::boolean = false or used = false)
order by seq desc
limit nullif($2::int, 0);
`

const QSelectPromptBundle = `--sql 8c9c386a-caed-4e16-b1fb-9f26750c3b6d
select payload, used
from prompt_bundles
where id = $1::text
limit 1;
`

const QSetPromptBundleUsed = `--sql 2025204a-eed1-42ad-b9a3-5590345d1c91
update prompt_bundles
set used = $2::boolean
where id = $1::text
returning payload, used;
`
